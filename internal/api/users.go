package api

import (
	"context"
	"fmt"
	"time"
)

// UserSummary is one row of the user dashboard.
type UserSummary struct {
	ID           int        `json:"idUsuario"`
	FullName     string     `json:"nombreCompleto"`
	Email        string     `json:"email"`
	Role         string     `json:"rolNombre"`
	Status       string     `json:"estado"`
	LeagueCount  int        `json:"totalLigas"`
	RegisteredAt *time.Time `json:"fechaRegistro"`
	LastSeenAt   *time.Time `json:"ultimoAcceso"`
	Picture      string     `json:"fotoPerfil"`
}

// UserDetail is a single user with their league memberships.
type UserDetail struct {
	UserSummary
	Leagues []UserLeague `json:"ligas"`
}

// UserLeague is one league a user participates in.
type UserLeague struct {
	LeagueID int       `json:"idLiga"`
	Name     string    `json:"nombre"`
	Role     string    `json:"rolEnLiga"`
	JoinedAt time.Time `json:"fechaIngreso"`
}

// UserDashboard lists all users for the admin dashboard.
func (c *Client) UserDashboard(ctx context.Context) ([]UserSummary, error) {
	var users []UserSummary
	if err := c.getJSON(ctx, "/api/usuarios/dashboard", &users); err != nil {
		return nil, err
	}

	return users, nil
}

// UserByID fetches a single user and their league participations.
func (c *Client) UserByID(ctx context.Context, userID int) (*UserDetail, error) {
	var user UserDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/api/usuarios/%d", userID), &user); err != nil {
		return nil, err
	}

	return &user, nil
}
