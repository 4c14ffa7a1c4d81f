package enums

// LicenseStatus maps to the license_status enum in Postgres.
type LicenseStatus string

const (
	// LicenseStatusActive means the key was issued and is not yet bound to a
	// device.
	LicenseStatusActive LicenseStatus = "active"
	// LicenseStatusUsed means the key is bound to a hardware identifier.
	LicenseStatusUsed LicenseStatus = "used"
	LicenseStatusExpired LicenseStatus = "expired"
	LicenseStatusRevoked LicenseStatus = "revoked"
)

var validLicenseStatuses = []LicenseStatus{
	LicenseStatusActive,
	LicenseStatusUsed,
	LicenseStatusExpired,
	LicenseStatusRevoked,
}

// String implements fmt.Stringer.
func (l LicenseStatus) String() string {
	return string(l)
}

// IsValid reports whether the value matches the canonical license_status enum.
func (l LicenseStatus) IsValid() bool {
	for _, candidate := range validLicenseStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}
