package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/db"
	"margin-gateway/pkg/exchanges/common"
)

type createOrderRequest struct {
	Symbol string      `json:"symbol"`
	Side   string      `json:"side"`
	Size   int64       `json:"size"`
	Price  json.Number `json:"price"`
}

func orderData(o db.Order) map[string]any {
	return map[string]any{
		"order_id": o.ID,
		"symbol":   o.Symbol,
		"side":     o.Side,
		"size":     o.Size,
		// Rendered as a JSON number without float rounding.
		"price": json.Number(o.Price.String()),
	}
}

func (s *Server) listOrders(c *gin.Context) {
	acc := accountFrom(c)
	orders, err := s.Orders.ListOrdersByAccount(c.Request.Context(), acc.PublicID)
	if err != nil {
		s.fail(c, err)
		return
	}
	items := make([]hypermedia.Document, 0, len(orders))
	for _, o := range orders {
		items = append(items, hypermedia.New(orderData(o)).
			With(hypermedia.Self(hypermedia.OrderPath(acc.PublicID, o.ID))))
	}
	doc := hypermedia.New(nil).
		With(
			hypermedia.Self(hypermedia.OrdersPath(acc.PublicID)),
			hypermedia.Up(hypermedia.AccountPath(acc.PublicID), "Account"),
			hypermedia.AddOrder(acc.PublicID),
		).
		WithItems(items...)
	respond(c, http.StatusOK, doc)
}

func (s *Server) createOrder(c *gin.Context) {
	acc := accountFrom(c)

	var req createOrderRequest
	if err := decodeBody(c, hypermedia.OrderSchema, &req); err != nil {
		s.fail(c, err)
		return
	}
	side, err := common.ParseSide(req.Side)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %v", errValidation, err))
		return
	}
	price, err := decimal.NewFromString(req.Price.String())
	if err != nil || !price.IsPositive() {
		s.fail(c, fmt.Errorf("%w: price must be a positive decimal", errValidation))
		return
	}

	order := db.Order{
		ID:        uuid.NewString(),
		AccountID: acc.PublicID,
		Symbol:    req.Symbol,
		Side:      string(side),
		Size:      req.Size,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Orders.CreateOrder(c.Request.Context(), order); err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Location", hypermedia.OrderPath(acc.PublicID, order.ID))
	c.Status(http.StatusCreated)
}

func (s *Server) getOrder(c *gin.Context) {
	acc := accountFrom(c)
	order, err := s.Orders.GetOrder(c.Request.Context(), acc.PublicID, c.Param("orderId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	doc := hypermedia.New(orderData(*order)).
		With(
			hypermedia.Self(hypermedia.OrderPath(acc.PublicID, order.ID)),
			hypermedia.Collection(hypermedia.OrdersPath(acc.PublicID)),
			hypermedia.DeleteOrder(acc.PublicID, order.ID),
		)
	respond(c, http.StatusOK, doc)
}

func (s *Server) deleteOrder(c *gin.Context) {
	acc := accountFrom(c)
	if err := s.Orders.DeleteOrder(c.Request.Context(), acc.PublicID, c.Param("orderId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
