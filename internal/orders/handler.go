package orders

import (
	"strconv"
	"time"

	"damacana-backend/internal/auth"
	"damacana-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID    uint                     `json:"customer_id"`
	ScheduledDate string                   `json:"scheduled_date"` // "2025-12-09", boşsa bugün
	PaymentMethod models.PaymentMethod     `json:"payment_method"`
	Notes         string                   `json:"notes"`
	Items         []CreateOrderItemRequest `json:"items"`
}

type AssignDriverRequest struct {
	DriverID uint `json:"driver_id"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type OrderItemResponse struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID            uint                 `json:"id"`
	CustomerID    uint                 `json:"customer_id"`
	CustomerName  string               `json:"customer_name,omitempty"`
	DriverID      *uint                `json:"driver_id"`
	ScheduledDate string               `json:"scheduled_date"`
	Status        models.OrderStatus   `json:"status"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	DeliveredAt   *time.Time           `json:"delivered_at,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Items         []OrderItemResponse  `json:"items,omitempty"`
}

func toResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		DriverID:      o.DriverID,
		ScheduledDate: o.ScheduledDate.Format("2006-01-02"),
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		DeliveredAt:   o.DeliveredAt,
		Notes:         o.Notes,
	}
	if o.Customer.ID != 0 {
		resp.CustomerName = o.Customer.Name
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
		if it.Product.ID != 0 {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// POST /api/orders (admin)
func CreateOrderHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kalem gerekli")
		}

		switch body.PaymentMethod {
		case models.PaymentMethodCash, models.PaymentMethodPOS, models.PaymentMethodCredit:
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme yöntemi (cash|pos|credit)")
		}

		var customer models.Customer
		if err := db.First(&customer, body.CustomerID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
		}

		var date time.Time
		if body.ScheduledDate == "" {
			now := time.Now()
			date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			d, err := time.ParseInLocation("2006-01-02", body.ScheduledDate, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı geçersiz, 'YYYY-MM-DD' olmalı")
			}
			date = d
		}

		order := models.Order{
			CustomerID:    body.CustomerID,
			ScheduledDate: date,
			Status:        models.OrderStatusPending,
			PaymentMethod: body.PaymentMethod,
			Notes:         body.Notes,
			TotalAmount:   decimal.Zero,
		}

		// Kalem fiyatları sipariş anında dondurulur
		for _, it := range body.Items {
			if it.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Adet 0'dan büyük olmalı")
			}
			var product models.Product
			if err := db.First(&product, it.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
			}
			if !product.Active {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün satışta değil: "+product.Name)
			}
			lineTotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			order.Items = append(order.Items, models.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: product.UnitPrice,
				LineTotal: lineTotal,
			})
			order.TotalAmount = order.TotalAmount.Add(lineTotal)
		}

		if err := db.Create(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toResponse(&order)})
	}
}

// GET /api/orders?status=pending&driver_id=3&from=...&to=...&page=1&limit=20
// Sürücüler sadece kendi siparişlerini görür.
func ListOrdersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := auth.RoleFromCtx(c)
		if err != nil {
			return err
		}

		page, _ := strconv.Atoi(c.Query("page", "1"))
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}

		dbq := db.Model(&models.Order{}).Preload("Customer").Preload("Items.Product")

		if role == models.RoleDriver {
			driverID, err := auth.DriverIDFromCtx(c)
			if err != nil {
				return err
			}
			dbq = dbq.Where("driver_id = ?", driverID)
		} else if didStr := c.Query("driver_id"); didStr != "" {
			did, err := strconv.Atoi(didStr)
			if err != nil || did <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "driver_id geçersiz")
			}
			dbq = dbq.Where("driver_id = ?", did)
		}

		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("status = ?", st)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
			}
			dbq = dbq.Where("scheduled_date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
			}
			dbq = dbq.Where("scheduled_date <= ?", to)
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
		}

		var orders []models.Order
		if err := dbq.Order("scheduled_date desc, id desc").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toResponse(&orders[i]))
		}

		return c.JSON(fiber.Map{
			"data":  resp,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// GET /api/orders/:id
func GetOrderHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş id geçersiz")
		}

		var order models.Order
		if err := db.Preload("Customer").Preload("Items.Product").First(&order, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		role, err := auth.RoleFromCtx(c)
		if err != nil {
			return err
		}
		if role == models.RoleDriver {
			driverID, err := auth.DriverIDFromCtx(c)
			if err != nil {
				return err
			}
			if order.DriverID == nil || *order.DriverID != driverID {
				return fiber.NewError(fiber.StatusForbidden, "Bu sipariş size atanmamış")
			}
		}

		return c.JSON(fiber.Map{"data": toResponse(&order)})
	}
}

// PATCH /api/orders/:id/assign (admin)
func AssignDriverHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş id geçersiz")
		}

		var body AssignDriverRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var driver models.Driver
		if err := db.First(&driver, body.DriverID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sürücü bulunamadı")
		}
		if !driver.Active {
			return fiber.NewError(fiber.StatusBadRequest, "Sürücü aktif değil")
		}

		var order models.Order
		if err := db.First(&order, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusAssigned {
			return fiber.NewError(fiber.StatusConflict, "Sipariş bu durumda atanamaz")
		}

		order.DriverID = &body.DriverID
		order.Status = models.OrderStatusAssigned

		if err := db.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": toResponse(&order)})
	}
}

// durum geçiş tablosu - sadece ileri yönlü
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:        {models.OrderStatusAssigned, models.OrderStatusCancelled},
	models.OrderStatusAssigned:       {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

// PATCH /api/orders/:id/status
// Admin her geçişi yapabilir; sürücü sadece kendi siparişini yürütebilir.
func UpdateStatusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş id geçersiz")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var order models.Order
		if err := db.First(&order, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		role, err := auth.RoleFromCtx(c)
		if err != nil {
			return err
		}
		if role == models.RoleDriver {
			driverID, err := auth.DriverIDFromCtx(c)
			if err != nil {
				return err
			}
			if order.DriverID == nil || *order.DriverID != driverID {
				return fiber.NewError(fiber.StatusForbidden, "Bu sipariş size atanmamış")
			}
		}

		valid := false
		for _, next := range allowedTransitions[order.Status] {
			if next == body.Status {
				valid = true
				break
			}
		}
		if !valid {
			return fiber.NewError(fiber.StatusConflict, "Geçersiz durum geçişi")
		}

		order.Status = body.Status
		if body.Status == models.OrderStatusCompleted {
			now := time.Now()
			order.DeliveredAt = &now
		}

		if err := db.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}

		return c.JSON(fiber.Map{"data": toResponse(&order)})
	}
}
