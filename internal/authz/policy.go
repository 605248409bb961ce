package authz

import (
	"damacana-backend/internal/auth"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Action - yetkilendirme policy'sinin tanıdığı işlemler.
// Route başına dağınık rol listesi tutmak yerine tüm kararlar
// tek bir CanPerform fonksiyonundan geçer.
type Action string

const (
	ActionManageUsers     Action = "manage_users"
	ActionManageCatalog   Action = "manage_catalog" // ürün/müşteri/sürücü tanımları
	ActionManageOrders    Action = "manage_orders"
	ActionDeliverOrders   Action = "deliver_orders" // sürücünün kendi siparişleri
	ActionSubmitExpense   Action = "submit_expense"
	ActionReviewExpense   Action = "review_expense"
	ActionSubmitHandover  Action = "submit_handover"
	ActionReviewHandover  Action = "review_handover"
	ActionViewOwnLedger   Action = "view_own_ledger"
	ActionManageLedger    Action = "manage_ledger" // manuel düzeltme + başka sürücünün defteri
	ActionPingLocation    Action = "ping_location"
	ActionTrackDrivers    Action = "track_drivers"
	ActionViewReports     Action = "view_reports"
)

var policy = map[Action][]models.UserRole{
	ActionManageUsers:    {models.RoleSuperAdmin},
	ActionManageCatalog:  {models.RoleSuperAdmin, models.RoleAdmin},
	ActionManageOrders:   {models.RoleSuperAdmin, models.RoleAdmin},
	ActionDeliverOrders:  {models.RoleDriver},
	ActionSubmitExpense:  {models.RoleDriver},
	ActionReviewExpense:  {models.RoleSuperAdmin, models.RoleAdmin},
	ActionSubmitHandover: {models.RoleDriver},
	ActionReviewHandover: {models.RoleSuperAdmin, models.RoleAdmin},
	ActionViewOwnLedger:  {models.RoleDriver},
	ActionManageLedger:   {models.RoleSuperAdmin, models.RoleAdmin},
	ActionPingLocation:   {models.RoleDriver},
	ActionTrackDrivers:   {models.RoleSuperAdmin, models.RoleAdmin},
	ActionViewReports:    {models.RoleSuperAdmin, models.RoleAdmin},
}

func CanPerform(role models.UserRole, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Require - ilgili action'a izni olmayan istekleri 403 ile keser.
func Require(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := auth.RoleFromCtx(c)
		if err != nil {
			return err
		}
		if !CanPerform(role, action) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
		}
		return c.Next()
	}
}
