package permission

type CatalogResponse struct {
	Permissions []Permission            `json:"permissions"`
	Grouped     map[string][]Permission `json:"grouped"`
}

type ReloadResponse struct {
	Count int `json:"count"`
}
