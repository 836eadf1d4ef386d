package source

// Column roles assign each source column to a canonical transaction field.
// Role "_ignore" (or an empty role) drops the column.
const (
	RoleIgnore          = "_ignore"
	RoleAmount          = "amount"
	RoleDate            = "date"
	RoleDescription     = "description"
	RoleCurrencyCode    = "currency-code"
	RoleSourceName      = "account-name"
	RoleSourceIBAN      = "account-iban"
	RoleDestinationName = "opposing-name"
	RoleDestinationIBAN = "opposing-iban"
	RoleExternalID      = "external-id"
	RoleCategory        = "category-name"
	RoleTags            = "tags-comma"
	RoleNotes           = "note"
)
