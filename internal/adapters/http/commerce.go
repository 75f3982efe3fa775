package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/medifly/internal/core/domain"
	"github.com/samirrijal/medifly/internal/core/usecases"
)

type addToCartRequest struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type verifyRequest struct {
	TransactionID string `json:"transaction_id"`
}

// ListCartHandler returns the caller's cart.
func ListCartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := deps.Carts.List(c.UserContext(), userID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		if items == nil {
			items = []domain.CartItem{}
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(items)
	}
}

// AddToCartHandler adds a medicine to the caller's cart.
func AddToCartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req addToCartRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		item, err := deps.Carts.Add(c.UserContext(), userID(c), req.MedicineID, req.Quantity)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// UpdateCartItemHandler sets a cart line's quantity; zero or less removes it.
func UpdateCartItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req quantityRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Carts.UpdateQuantity(c.UserContext(), userID(c), c.Params("id"), req.Quantity); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RemoveCartItemHandler deletes one cart line.
func RemoveCartItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Carts.Remove(c.UserContext(), userID(c), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ClearCartHandler empties the caller's cart.
func ClearCartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Carts.Clear(c.UserContext(), userID(c)); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListOrdersHandler returns the caller's orders, newest first.
func ListOrdersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := deps.Orders.List(c.UserContext(), userID(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(paginate(c, orders, 20, 100))
	}
}

// CheckoutHandler turns the caller's cart into an order.
func CheckoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.CheckoutInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		o, err := deps.Orders.Checkout(c.UserContext(), userID(c), in)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/orders/" + o.ID)
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// GetOrderHandler returns one of the caller's orders.
func GetOrderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		o, err := deps.Orders.Get(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "private, no-store")
		return c.JSON(o)
	}
}

// UpdateOrderStatusHandler moves one of the caller's orders to a new status.
func UpdateOrderStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req statusRequest
		if err := c.BodyParser(&req); err != nil || req.Status == "" {
			return errBadRequest(c, "status is required")
		}
		o, err := deps.Orders.UpdateStatus(c.UserContext(), userID(c), c.Params("id"), req.Status)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(o)
	}
}

// InitiatePaymentHandler opens a gateway pay page for an order.
func InitiatePaymentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := deps.Payments.Initiate(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(session)
	}
}

// VerifyPaymentHandler asks the gateway for the state of a transaction.
func VerifyPaymentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req verifyRequest
		if err := c.BodyParser(&req); err != nil || req.TransactionID == "" {
			return errBadRequest(c, "transaction_id is required")
		}
		res, err := deps.Payments.Verify(c.UserContext(), userID(c), c.Params("id"), req.TransactionID)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// PaymentWebhookHandler receives server-to-server gateway callbacks.
func PaymentWebhookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Payments.HandleWebhook(c.UserContext(), c.Body(), c.Get("X-VERIFY")); err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
