package controllers

import (
	"encoding/json"
	"strings"

	"apidocs-admin/apierrors"
	"apidocs-admin/middlewares"
	"apidocs-admin/models"
	"apidocs-admin/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type EndpointController struct {
	Store store.EndpointStore
	Log   logrus.FieldLogger
}

type UpsertEndpointDTO struct {
	EndpointKey string                     `json:"endpointKey" validate:"required"`
	Data        map[string]json.RawMessage `json:"data" validate:"required"`
}

// GET /api/endpoints
func (ec *EndpointController) List(c *fiber.Ctx) error {
	endpoints, err := ec.Store.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(endpoints)
}

// POST /api/endpoints
func (ec *EndpointController) Upsert(c *fiber.Ctx) error {
	var in UpsertEndpointDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	id := strings.TrimSpace(in.EndpointKey)
	if id == "" {
		return apierrors.Validation("Missing required fields")
	}

	endpoint, err := models.NewEndpoint(id, in.Data)
	if err != nil {
		return err
	}
	if err := ec.Store.Upsert(c.UserContext(), endpoint); err != nil {
		return err
	}

	ec.Log.WithFields(logrus.Fields{
		"request_id": middlewares.RequestID(c),
		"endpoint":   id,
	}).Info("endpoint saved")
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Endpoint saved successfully",
	})
}

// MethodNotAllowed answers methods a route does not serve.
func MethodNotAllowed(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusMethodNotAllowed, "Method not allowed")
}
