package models

// Dimension is a table shape shown as "rows × columns"
type Dimension struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// SeasonList is the response for available seasons
type SeasonList struct {
	Seasons []int `json:"seasons"`
	Count   int   `json:"count"`
}

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
