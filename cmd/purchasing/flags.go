package main

import (
	"fmt"
	"strings"
	"time"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func optionalDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return &d, nil
}

func optionalDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, want YYYY-MM-DD: %w", name, raw, err)
	}
	return &t, nil
}

func optionalID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func metadataFrom(kv map[string]string) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]any, len(kv))
	for k, v := range kv {
		out[k] = v
	}
	return out
}

// parseLineItems reads --item values of the form name:quantity[:unit_price[:unit]]
func parseLineItems(specs []string) ([]purchasingapp.CreateLineItemInput, error) {
	items := make([]purchasingapp.CreateLineItemInput, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 4 {
			return nil, fmt.Errorf("invalid item %q, want name:quantity[:unit_price[:unit]]", spec)
		}
		qty, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in item %q: %w", spec, err)
		}
		item := purchasingapp.CreateLineItemInput{ProductName: parts[0], Quantity: qty}
		if len(parts) > 2 && parts[2] != "" {
			if item.UnitPrice, err = decimal.NewFromString(parts[2]); err != nil {
				return nil, fmt.Errorf("invalid unit price in item %q: %w", spec, err)
			}
		}
		if len(parts) > 3 {
			item.Unit = parts[3]
		}
		items = append(items, item)
	}
	return items, nil
}

// parseReceptions reads --line values of the form item_id=quantity:condition[:quality]
func parseReceptions(specs []string) ([]purchasingapp.ReceiveItemInput, error) {
	lines := make([]purchasingapp.ReceiveItemInput, 0, len(specs))
	for _, spec := range specs {
		id, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %q, want item_id=quantity:condition[:quality]", spec)
		}
		itemID, err := parseID("line item", id)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(rest, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid line %q, want item_id=quantity:condition[:quality]", spec)
		}
		qty, err := decimal.NewFromString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in line %q: %w", spec, err)
		}
		line := purchasingapp.ReceiveItemInput{ItemID: itemID, QuantityReceived: qty, Condition: parts[1]}
		if len(parts) == 3 {
			line.QualityStatus = parts[2]
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// parseVerifications reads --line values of the form item_id=quality
func parseVerifications(specs []string) ([]purchasingapp.VerifyItemInput, error) {
	lines := make([]purchasingapp.VerifyItemInput, 0, len(specs))
	for _, spec := range specs {
		id, quality, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %q, want item_id=quality", spec)
		}
		itemID, err := parseID("line item", id)
		if err != nil {
			return nil, err
		}
		lines = append(lines, purchasingapp.VerifyItemInput{ItemID: itemID, QualityStatus: quality})
	}
	return lines, nil
}
