package crm

import (
	"time"

	"github.com/okian/cobj/internal/domain/model"
)

// objectDTO is the wire shape of one object in /crm/v3/objects responses.
type objectDTO struct {
	ID         string             `json:"id"`
	Properties map[string]*string `json:"properties"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Archived   bool               `json:"archived"`
}

type listResponse struct {
	Results []objectDTO `json:"results"`
}

type createRequest struct {
	Properties map[string]string `json:"properties"`
}

// toRecord converts the wire shape; null property values become "".
func (o objectDTO) toRecord() model.Record {
	props := make(map[string]string, len(o.Properties))
	for k, v := range o.Properties {
		if v != nil {
			props[k] = *v
		} else {
			props[k] = ""
		}
	}
	return model.Record{
		ID:         o.ID,
		Properties: props,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Archived:   o.Archived,
	}
}
