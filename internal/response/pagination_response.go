package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination fills the derived fields for one result page.
func NewPagination(page, pageSize, totalItems int) *Pagination {
	totalPages := int64(0)
	if pageSize > 0 {
		totalPages = int64((totalItems + pageSize - 1) / pageSize)
	}
	from := (page-1)*pageSize + 1
	to := page * pageSize
	if totalItems == 0 {
		from = 0
	}
	if to > totalItems {
		to = totalItems
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: int64(totalItems),
		HasMore:    int64(page) < totalPages,
		From:       from,
		To:         to,
	}
}
