package calendar

type CalendarDay struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Kept      bool   `json:"kept"`
	Perfect   bool   `json:"perfect"`
	IsToday   bool   `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
