// KaungMyatLinn | 2026
// dto.go

package audit

type ListResponse struct {
	Entries []Entry `json:"entries"`
	Total   int64   `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}
