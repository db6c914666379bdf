package controllers

import (
	"context"
	"encoding/json"

	"apidocs-admin/apierrors"
	"apidocs-admin/middlewares"
	"apidocs-admin/proxy"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ProxyController exposes the two forwarding entry points. Each one picks
// its own strategy: Explicit relays any body, Routed insists on JSON.
type ProxyController struct {
	Explicit proxy.Forwarder
	Routed   proxy.Forwarder
	Routes   *proxy.Routes
	Log      logrus.FieldLogger
}

type ProxyRequestDTO struct {
	TargetURL   string            `json:"targetUrl" validate:"required"`
	Method      string            `json:"method"`
	Headers     map[string]string `json:"headers"`
	Body        any               `json:"body"`
	Environment string            `json:"environment"`
}

// POST /api/proxy
func (pc *ProxyController) ForwardExplicit(c *fiber.Ctx) error {
	var in ProxyRequestDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	body, err := encodeBody(in.Body)
	if err != nil {
		return err
	}

	pc.Log.WithFields(logrus.Fields{
		"request_id":  middlewares.RequestID(c),
		"environment": in.Environment,
	}).Debug("explicit proxy request")

	resp, err := pc.Explicit.Forward(upstreamContext(c), &proxy.Request{
		URL:     in.TargetURL,
		Method:  in.Method,
		Headers: in.Headers,
		Body:    body,
	})
	if err != nil {
		return err
	}
	return c.Status(resp.Status).JSON(resp)
}

// ANY /api/proxy/*
func (pc *ProxyController) ForwardRouted(c *fiber.Ctx) error {
	target, err := pc.Routes.Resolve(c.Params("*"), string(c.Request().URI().QueryString()))
	if err != nil {
		return err
	}

	headers := make(map[string]string, len(proxy.ForwardedHeaders))
	for _, h := range proxy.ForwardedHeaders {
		if v := c.Get(h); v != "" {
			headers[h] = v
		}
	}

	resp, err := pc.Routed.Forward(upstreamContext(c), &proxy.Request{
		URL:     target,
		Method:  c.Method(),
		Headers: headers,
		Body:    append([]byte(nil), c.Body()...),
	})
	if err != nil {
		return err
	}
	return c.Status(resp.Status).JSON(resp.Data)
}

// encodeBody turns the caller's body into bytes: strings are sent as-is,
// anything else is re-encoded as JSON.
func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	default:
		out, err := json.Marshal(b)
		if err != nil {
			return nil, &apierrors.ValidationError{Message: "Invalid request body", Details: err.Error()}
		}
		return out, nil
	}
}

// upstreamContext detaches the outbound call from the inbound request, so a
// caller going away does not abort a call already in flight.
func upstreamContext(c *fiber.Ctx) context.Context {
	return context.WithoutCancel(c.UserContext())
}
