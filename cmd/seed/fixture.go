package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"planning-poker/internal/domain"
)

// Fixture describe sesiones de ejemplo para poblar una base local.
type Fixture struct {
	Sessions []FixtureSession `yaml:"sessions"`
}

type FixtureSession struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	ProjectKey   string         `yaml:"project_key"`
	CreatedBy    string         `yaml:"created_by"`
	Participants []string       `yaml:"participants"`
	Estimators   []string       `yaml:"estimators"`
	Issues       []FixtureIssue `yaml:"issues"`
}

type FixtureIssue struct {
	Key         string            `yaml:"key"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	URL         string            `yaml:"url"`
	Votes       map[string]string `yaml:"votes"`
}

func loadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i, s := range fx.Sessions {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.CreatedBy) == "" {
			return Fixture{}, fmt.Errorf("session %d: name and created_by are required", i)
		}
	}
	return fx, nil
}

// parseCard convierte "8" o "J" en una estimacion.
func parseCard(raw string) (domain.Estimate, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "j") || strings.EqualFold(raw, "joker") {
		return domain.Joker(), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("%w: card %q", domain.ErrInvalidEstimate, raw)
	}
	return domain.Points(n), nil
}
