package domain

// BootstrapData describes the first administrator.
type BootstrapData struct {
	AdminEmail       string
	AdminDisplayName string
	AdminPassword    string
}
