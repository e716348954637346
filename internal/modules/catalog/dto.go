package catalog

import "lendhub/internal/domain"

type EquipmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Condition   string `json:"condition" validate:"required,oneof=excellent good fair poor"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	Description string `json:"description"`
}

// EquipmentResponse carries the derived available count alongside the
// stored record.
type EquipmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	Quantity    int    `json:"quantity"`
	Available   int    `json:"available"`
	Description string `json:"description"`
}

func toEquipmentResponse(e *domain.Equipment, available int) EquipmentResponse {
	return EquipmentResponse{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Condition:   string(e.Condition),
		Quantity:    e.Quantity,
		Available:   available,
		Description: e.Description,
	}
}
