package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"planning-poker/internal/config"
	"planning-poker/internal/db"
	"planning-poker/internal/repository"
	"planning-poker/internal/service"
)

func main() {
	ctx := context.Background()
	fixturePath := flag.String("fixture", "seed.yaml", "YAML fixture with sessions, issues and votes")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	fx, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("cargar fixture: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	sessionRepo := repository.NewPgSessionRepository(pool)
	issueRepo := repository.NewPgIssueRepository(pool)
	estimateRepo := repository.NewPgEstimateRepository(pool)

	engine := service.NewConsensusEngine(cfg.PointScale, cfg.ConsensusMaxSpread)
	sessionSvc := service.NewSessionService(logger, sessionRepo, issueRepo)
	estimationSvc := service.NewEstimationService(logger, sessionRepo, issueRepo, estimateRepo, engine, nil, nil)
	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	users := map[string]struct{}{}
	for _, fs := range fx.Sessions {
		detail, err := sessionSvc.CreateSession(ctx, service.CreateSessionInput{
			Name:        fs.Name,
			Description: fs.Description,
			ProjectKey:  fs.ProjectKey,
			CreatedBy:   fs.CreatedBy,
			Estimators:  fs.Estimators,
		})
		if err != nil {
			log.Fatalf("crear sesion %q: %v", fs.Name, err)
		}
		users[fs.CreatedBy] = struct{}{}
		for _, p := range fs.Participants {
			if _, err := sessionSvc.AddParticipant(ctx, detail.ID, p); err != nil {
				log.Fatalf("agregar participante %q: %v", p, err)
			}
			users[p] = struct{}{}
		}
		fmt.Printf("session %s (%s)\n", detail.Name, detail.ID)

		for _, fi := range fs.Issues {
			issue, err := sessionSvc.AddIssue(ctx, service.AddIssueInput{
				SessionID:   detail.ID,
				ExternalKey: fi.Key,
				ExternalURL: fi.URL,
				Title:       fi.Title,
				Description: fi.Description,
			})
			if err != nil {
				log.Fatalf("crear issue %q: %v", fi.Key, err)
			}

			voters := make([]string, 0, len(fi.Votes))
			for u := range fi.Votes {
				voters = append(voters, u)
			}
			sort.Strings(voters)

			var last *service.SubmitResult
			for _, u := range voters {
				card, err := parseCard(fi.Votes[u])
				if err != nil {
					log.Fatalf("issue %s, voto de %s: %v", fi.Key, u, err)
				}
				res, err := estimationSvc.SubmitEstimate(ctx, service.SubmitEstimateInput{
					SessionID: detail.ID,
					IssueID:   issue.ID,
					UserID:    u,
					Estimate:  card,
				})
				if err != nil {
					log.Fatalf("issue %s, voto de %s: %v", fi.Key, u, err)
				}
				users[u] = struct{}{}
				last = &res
			}

			if last == nil {
				fmt.Printf("  %s %q: sin votos\n", fi.Key, fi.Title)
				continue
			}
			final := "-"
			if last.Verdict.FinalPoints != nil {
				final = fmt.Sprint(*last.Verdict.FinalPoints)
			}
			fmt.Printf("  %s %q: %s final=%s spread=%d votes=%d/%d jokers=%d\n",
				fi.Key, fi.Title, last.Verdict.Status, final, last.Verdict.Spread,
				last.Verdict.TotalVotes, last.Verdict.RosterSize, last.Verdict.JokerCount)
		}
	}

	if !jwtSvc.Enabled() {
		return
	}
	names := make([]string, 0, len(users))
	for u := range users {
		names = append(names, u)
	}
	sort.Strings(names)
	fmt.Println("access tokens:")
	for _, u := range names {
		token, err := jwtSvc.GenerateAccessToken(u, "")
		if err != nil {
			log.Fatalf("token para %s: %v", u, err)
		}
		fmt.Printf("  %s %s\n", u, token)
	}
}
