package api

import (
	"context"
	"fmt"
	"time"
)

// League is a league as the backend reports it, including the caller's
// role within it.
type League struct {
	ID          int        `json:"idLiga"`
	Name        string     `json:"nombre"`
	Description string     `json:"descripcion"`
	CreatedAt   time.Time  `json:"fechaCreacion"`
	StartsAt    *time.Time `json:"fechaInicio"`
	EndsAt      *time.Time `json:"fechaFin"`
	Status      string     `json:"estado"`
	TeamCount   int        `json:"cantidadEquipos"`
	CreatorName string     `json:"creadorNombre"`
	MyRole      string     `json:"miRolEnLiga"`
	CanInvite   bool       `json:"puedoInvitar"`
	Active      bool       `json:"vigente"`
}

// LeagueInfo is the tournament summary for a single league.
type LeagueInfo struct {
	ID          int    `json:"idLiga"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Status      string `json:"estado"`
	TeamCount   int    `json:"cantidadEquipos"`
	IsOrganizer bool   `json:"esOrganizador"`
}

// CreateLeagueRequest is the payload for creating a league.
type CreateLeagueRequest struct {
	Name        string     `json:"nombre"`
	Description string     `json:"descripcion,omitempty"`
	Status      string     `json:"estatus,omitempty"`
	StartsAt    *time.Time `json:"fechaInicio,omitempty"`
	EndsAt      *time.Time `json:"fechaFin,omitempty"`
}

// InviteRequest invites a user into a league by email.
type InviteRequest struct {
	Email   string `json:"email"`
	Kind    string `json:"tipoInvitacion,omitempty"`
	Message string `json:"mensajePersonalizado,omitempty"`
}

// Invitation is a pending league invitation.
type Invitation struct {
	ID     int    `json:"idInvitacion"`
	Email  string `json:"email"`
	Kind   string `json:"tipoInvitacion"`
	Status string `json:"estado"`
}

// TeamDetail is one numbered team and its members.
type TeamDetail struct {
	Number  int          `json:"numeroEquipo"`
	Members []TeamMember `json:"usuarios"`
}

// TeamMember is a user assigned to a team.
type TeamMember struct {
	UserID int    `json:"idUsuario"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
}

// MyLeagues lists the leagues the authenticated user belongs to.
func (c *Client) MyLeagues(ctx context.Context) ([]League, error) {
	var leagues []League
	if err := c.getJSON(ctx, "/api/ligas/mis-ligas", &leagues); err != nil {
		return nil, err
	}

	return leagues, nil
}

// CreateLeague creates a league owned by the authenticated user.
func (c *Client) CreateLeague(ctx context.Context, req CreateLeagueRequest) (*League, error) {
	var league League
	if err := c.postJSON(ctx, "/api/ligas", req, &league); err != nil {
		return nil, err
	}

	return &league, nil
}

// LeagueInfo fetches the tournament summary for a league.
func (c *Client) LeagueInfo(ctx context.Context, leagueID int) (*LeagueInfo, error) {
	var info LeagueInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/api/ligas/%d/info", leagueID), &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// InviteUser invites a user into a league.
func (c *Client) InviteUser(ctx context.Context, leagueID int, req InviteRequest) (*Invitation, error) {
	var inv Invitation
	if err := c.postJSON(ctx, fmt.Sprintf("/api/usuarios/liga/%d/invitar", leagueID), req, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

// LeagueInvitations lists the pending invitations of a league.
func (c *Client) LeagueInvitations(ctx context.Context, leagueID int) ([]Invitation, error) {
	var invs []Invitation
	if err := c.getJSON(ctx, fmt.Sprintf("/api/usuarios/liga/%d/invitaciones", leagueID), &invs); err != nil {
		return nil, err
	}

	return invs, nil
}

// LeagueTeams lists the teams of a league with their members.
func (c *Client) LeagueTeams(ctx context.Context, leagueID int) ([]TeamDetail, error) {
	var teams []TeamDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/api/ligas/%d/equipos-detalle", leagueID), &teams); err != nil {
		return nil, err
	}

	return teams, nil
}
