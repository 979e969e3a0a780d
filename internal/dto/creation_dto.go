package dto

import "time"

type CreationDTO struct {
	Id        string                 `json:"id"`
	UserId    string                 `json:"userId"`
	Workflow  *string                `json:"workflow"`
	Metadata  map[string]interface{} `json:"metadata"`
	ImageURL  string                 `json:"image_url"`
	CreatedAt time.Time              `json:"createdAt"`
	Status    string                 `json:"status"`
}

type ListCreationsResponse struct {
	Creations []CreationDTO `json:"creations"`
}

type GetCreationResponse struct {
	Creation CreationDTO `json:"creation"`
}

type DeleteCreationResponse struct {
	Message string `json:"message"`
}
