package models

type DashboardStats struct {
	Users             int `json:"users"`
	ActiveTournaments int `json:"active"`
	Matches           int `json:"matches"`
}
