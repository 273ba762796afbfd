package reconcile

import "time"

const (
	// entryDescription is stamped on every entry and resource this tool
	// creates, marking them as machine-managed.
	entryDescription = "Managed by iprangesync"

	// managedByValue identifies this tool in the ManagedBy tag.
	managedByValue = "iprangesync"

	// notYetUpdated is the UpdatedAt placeholder stamped at creation.
	notYetUpdated = "Not yet"
)

func timestamp(now func() time.Time) string {
	return now().UTC().Format(time.RFC3339)
}
