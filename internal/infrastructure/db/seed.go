package db

import (
	"context"
	"fmt"

	"github.com/solarops/dispatch/internal/config"
	"github.com/solarops/dispatch/internal/domain"
	"github.com/solarops/dispatch/internal/infrastructure/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	username  string
	password  string
	role      domain.Role
	teamIndex int // index into the seeded teams, -1 for none
}

var defaultUsers = []seedUser{
	{username: "gestore", password: "admin123", role: domain.RoleManager, teamIndex: -1},
	{username: "mario.bianchi", password: "squadra123", role: domain.RoleOperator, teamIndex: 0},
	{username: "luca.verdi", password: "squadra123", role: domain.RoleOperator, teamIndex: 1},
	{username: "giuseppe.rossi", password: "squadra123", role: domain.RoleOperator, teamIndex: 2},
}

var defaultPlants = []domain.Plant{
	{Name: "Impianto Solare Nord", Location: "Via Roma 123, Milano", Capacity: "50 kW", InstallationDate: "2020-03-15", Status: domain.PlantStatusActive},
	{Name: "Impianto Fotovoltaico Sud", Location: "Via Verdi 456, Roma", Capacity: "100 kW", InstallationDate: "2019-07-22", Status: domain.PlantStatusActive},
	{Name: "Parco Solare Est", Location: "Via Dante 789, Napoli", Capacity: "200 kW", InstallationDate: "2021-01-10", Status: domain.PlantStatusActive},
	{Name: "Centrale Fotovoltaica Ovest", Location: "Via Manzoni 321, Torino", Capacity: "150 kW", InstallationDate: "2020-11-05", Status: domain.PlantStatusActive},
	{Name: "Impianto Residenziale Centro", Location: "Via Garibaldi 654, Firenze", Capacity: "25 kW", InstallationDate: "2022-02-28", Status: domain.PlantStatusActive},
	{Name: "Complesso Solare Industriale", Location: "Via Leonardo 987, Bologna", Capacity: "300 kW", InstallationDate: "2018-09-14", Status: domain.PlantStatusMaintenance},
}

// Seed fills empty teams, users and plants tables with the default field
// organisation. Tables that already hold rows are left alone.
func Seed(ctx context.Context, database *gorm.DB, cfg config.DispatchConfig, log *logger.Logger) error {
	teamRepo := NewTeamRepository(database, log)
	userRepo := NewUserRepository(database, log)
	plantRepo := NewPlantRepository(database, log)

	teamCount, err := teamRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count teams: %w", err)
	}
	var teams []domain.Team
	if teamCount == 0 {
		for _, t := range []struct{ name, leader string }{
			{"Squadra A", "Mario Bianchi"},
			{"Squadra B", "Luca Verdi"},
			{"Squadra C", "Giuseppe Rossi"},
		} {
			team := domain.Team{
				Name:            t.name,
				Leader:          t.leader,
				Status:          domain.TeamStatusAvailable,
				CurrentLocation: cfg.HomeBase,
				NextAvailable:   cfg.FreeNowLabel,
			}
			if err := teamRepo.Create(ctx, &team); err != nil {
				return fmt.Errorf("seed team %s: %w", t.name, err)
			}
			teams = append(teams, team)
		}
		log.Infow("seed_teams_created", "count", len(teams))
	} else if teams, err = teamRepo.GetAll(ctx); err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	userCount, err := userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if userCount == 0 {
		for _, u := range defaultUsers {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.username, err)
			}
			user := domain.User{Username: u.username, Password: string(hash), Role: u.role}
			if u.teamIndex >= 0 && u.teamIndex < len(teams) {
				id := teams[u.teamIndex].ID
				user.TeamID = &id
			}
			if err := userRepo.Create(ctx, &user); err != nil {
				return fmt.Errorf("seed user %s: %w", u.username, err)
			}
		}
		log.Infow("seed_users_created", "count", len(defaultUsers))
	}

	plantCount, err := plantRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count plants: %w", err)
	}
	if plantCount == 0 {
		for _, p := range defaultPlants {
			plant := p
			if err := plantRepo.Create(ctx, &plant); err != nil {
				return fmt.Errorf("seed plant %s: %w", p.Name, err)
			}
		}
		log.Infow("seed_plants_created", "count", len(defaultPlants))
	}

	return nil
}
