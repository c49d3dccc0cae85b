package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pulso-app/pulso/internal/api"
	"github.com/pulso-app/pulso/internal/config"
	"github.com/pulso-app/pulso/internal/dashboard"
	"github.com/pulso-app/pulso/internal/models"
)

// Drives the dashboard container end-to-end against a running proxy:
// reset, capture, derived analytics/opportunity fetches, confirmation URL.
func main() {
	fmt.Println("🧪 Pulso - Dashboard Integration Test")
	fmt.Println("=====================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	proxyURL := os.Getenv("PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://localhost:" + cfg.Port
	}

	query := "Rappi"
	if len(os.Args) > 1 {
		query = os.Args[1]
	}

	client := api.NewClient(proxyURL, cfg.LookupAPIBaseURL)
	if token := os.Getenv("SESSION_TOKEN"); token != "" {
		client.SetSessionToken(token)
	} else {
		log.Println("No SESSION_TOKEN set, user-action recording will be rejected as unauthenticated")
	}
	service := dashboard.NewService(client)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("\n🚀 Capturing posts for %q through %s...\n", query, proxyURL)

	service.ResetAll()
	service.FetchCompanyPosts(ctx, api.PostsParams{Query: query, MaxItems: 10})
	service.Wait()

	state := service.Snapshot()

	fmt.Println("\n📦 Container state after capture:")
	if state.Error != nil {
		fmt.Printf("   ❌ posts error: %s\n", *state.Error)
	} else if state.CompanyPosts != nil {
		withImages := 0
		for _, post := range state.CompanyPosts.Posts {
			if post.Image != "" {
				withImages++
			}
		}
		fmt.Printf("   ✅ %d posts (%d with images, ordered first)\n", len(state.CompanyPosts.Posts), withImages)
	}

	if state.AnalyticsError != nil {
		fmt.Printf("   ❌ analytics error: %s\n", *state.AnalyticsError)
	} else if state.Analytics != nil {
		fmt.Printf("   ✅ analytics: %d mentions, %.1f%% approval (%d+/%d-/%d=)\n",
			state.Analytics.CountMentions, state.Analytics.ApprovalScore,
			state.Analytics.SentimentPositiveCount, state.Analytics.SentimentNegativeCount,
			state.Analytics.SentimentNeutralCount)
	}

	if state.OpportunityError != nil {
		fmt.Printf("   ❌ opportunity error: %s\n", *state.OpportunityError)
	} else if state.Opportunity != nil {
		fmt.Printf("   ✅ opportunity: %d insights\n", len(state.Opportunity.Results))
		for i, result := range state.Opportunity.Results {
			if i >= 2 {
				break
			}
			fmt.Printf("      💡 %s\n", result.Insight)
		}
	}

	fmt.Printf("   ⏱  loading flags settled: posts=%v analytics=%v opportunity=%v\n",
		!state.IsLoading, !state.IsLoadingAnalytics, !state.IsLoadingOpportunity)

	fmt.Println("\n🔗 Confirmation flow:")
	url := service.ConfirmCompany(ctx, models.ConfirmationPayload{
		CompanyName: query,
		Country:     "PE",
		Categories:  []string{"delivery"},
	})
	fmt.Printf("   → %s\n", url)

	fmt.Println("\n✨ Done")
}
