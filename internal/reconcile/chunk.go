package reconcile

// chunkStrings partitions list into consecutive chunks of at most size
// entries, preserving order. Only the last chunk may be shorter. A nil or
// empty list yields no chunks.
func chunkStrings(list []string, size int) [][]string {
	if size <= 0 || len(list) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(list)+size-1)/size)
	for start := 0; start < len(list); start += size {
		end := min(start+size, len(list))
		chunks = append(chunks, list[start:end])
	}
	return chunks
}
