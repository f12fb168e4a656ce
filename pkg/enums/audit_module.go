package enums

import "fmt"

// AuditModule names the application area an audit entry belongs to.
type AuditModule string

const (
	AuditModuleAuth       AuditModule = "auth"
	AuditModuleCustomers  AuditModule = "customers"
	AuditModuleCategories AuditModule = "categories"
	AuditModuleProducts   AuditModule = "products"
	AuditModuleStock      AuditModule = "stock"
	AuditModuleSales      AuditModule = "sales"
	AuditModulePromotions AuditModule = "promotions"
	AuditModuleUsers      AuditModule = "users"
	AuditModuleBackup     AuditModule = "backup"
)

var validAuditModules = []AuditModule{
	AuditModuleAuth,
	AuditModuleCustomers,
	AuditModuleCategories,
	AuditModuleProducts,
	AuditModuleStock,
	AuditModuleSales,
	AuditModulePromotions,
	AuditModuleUsers,
	AuditModuleBackup,
}

// String implements fmt.Stringer.
func (a AuditModule) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditModule.
func (a AuditModule) IsValid() bool {
	for _, candidate := range validAuditModules {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditModule converts raw input into an AuditModule.
func ParseAuditModule(value string) (AuditModule, error) {
	for _, candidate := range validAuditModules {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit module %q", value)
}
