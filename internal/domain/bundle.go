package domain

// BundleOption identifies the application that owns a reminder. The
// manager keeps the association; reminders do not know their bundle.
type BundleOption struct {
	BundleName string
	UID        int32
	UserID     int32
}
