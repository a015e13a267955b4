// Package chatops is the operator control channel: it turns actions tapped on chat
// controls into transition requests, answers the operator and keeps the controls in
// sync with the stored status.
package chatops

import (
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// activeMarker prefixes the button matching the current status.
const activeMarker = "• "

const dataSeparator = ":"

// label is an external action name carried in button data.
type label struct {
	name   string
	text   string
	status order.Status
}

// labels is the fixed lookup table, in button order.
func labels() []label {
	return []label{
		{name: "accepted", text: "Accepted", status: order.Confirmed},
		{name: "preparing", text: "Preparing", status: order.Preparing},
		{name: "delivering", text: "Delivering", status: order.Delivering},
		{name: "delivered", text: "Delivered", status: order.Delivered},
		{name: "cancelled", text: "Cancelled", status: order.Cancelled},
	}
}

// StatusForLabel maps an external action label to its canonical status.
func StatusForLabel(name string) (order.Status, bool) {
	for _, l := range labels() {
		if l.name == name {
			return l.status, true
		}
	}
	return order.Unknown, false
}

// EncodeActionData renders the button payload "<label>:<order_id>".
func EncodeActionData(name string, id kernel.OrderID) string {
	return name + dataSeparator + id.String()
}

// ParseActionData splits a button payload into the requested status and the order id.
func ParseActionData(data string) (order.Status, kernel.OrderID, error) {
	name, rawID, found := strings.Cut(strings.TrimSpace(data), dataSeparator)
	if !found {
		return order.Unknown, kernel.OrderID{}, errs.NewValueIsInvalidErrorWithCause(
			"action data", fmt.Errorf("%q is not <label>:<order_id>", data),
		)
	}

	status, ok := StatusForLabel(name)
	if !ok {
		return order.Unknown, kernel.OrderID{}, errs.NewValueIsInvalidErrorWithCause(
			"action label", fmt.Errorf("%q is not a known action", name),
		)
	}

	id, err := kernel.OrderIDFromString(rawID)
	if err != nil {
		return order.Unknown, kernel.OrderID{}, err
	}

	return status, id, nil
}

// BuildControls renders the card for o. Terminal orders get no buttons.
func BuildControls(o *order.Order) ports.Controls {
	c := ports.Controls{
		OrderID: o.ID(),
		Text:    fmt.Sprintf("Order %s\nStatus: %s", o.ID(), o.Status()),
	}
	if o.Status().IsTerminal() {
		return c
	}

	for _, l := range labels() {
		b := ports.Button{Text: l.text, Data: EncodeActionData(l.name, o.ID())}
		if l.status == o.Status() {
			b.Active = true
			b.Text = activeMarker + b.Text
		}
		c.Buttons = append(c.Buttons, b)
	}
	return c
}
