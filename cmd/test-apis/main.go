package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pulso-app/pulso/internal/api"
	"github.com/pulso-app/pulso/internal/config"
)

func main() {
	fmt.Println("🔍 Pulso - API Connectivity Test")
	fmt.Println("================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The client normally points at the proxy; here it talks to the
	// upstream directly to verify connectivity before the proxy is up.
	client := api.NewClient(cfg.SearchAPIBaseURL, cfg.LookupAPIBaseURL)

	query := "Rappi"
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing upstream endpoints...")
	fmt.Println(strings.Repeat("-", 40))

	fmt.Printf("\n🏢 Company lookup for %q... ", query)
	lookup, err := client.LookupCompany(ctx, api.LookupParams{Company: query})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	} else if lookup.Agent != nil {
		fmt.Printf("✅ %s (%s)\n", lookup.Agent.CompanyName, lookup.Agent.Domain)
	} else {
		fmt.Printf("⚠️  status %s, no agent returned\n", lookup.Status)
	}

	fmt.Printf("\n📊 Analytics for %q... ", query)
	analytics, err := client.FetchAnalytics(ctx, api.AnalyticsParams{Keyword: query})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Printf("✅ %d mentions, %.1f%% approval\n", analytics.CountMentions, analytics.ApprovalScore)
	}

	fmt.Printf("\n📰 Posts capture for %q (max 5)... ", query)
	posts, err := client.FetchCompanyPosts(ctx, api.PostsParams{Query: query, MaxItems: 5})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Printf("✅ %d posts (%s)\n", len(posts.Posts), posts.Status)
		for i, post := range posts.Posts {
			if i >= 3 {
				break
			}
			fmt.Printf("   • [%d] %s\n", post.ID, truncate(post.Title, 60))
		}
	}

	fmt.Printf("\n💡 Opportunity report for %q... ", query)
	opportunity, err := client.FetchOpportunity(ctx, api.OpportunityParams{Query: query, Limit: 10})
	if err != nil {
		fmt.Printf("❌ %v\n", err)
	} else {
		fmt.Printf("✅ %d insights\n", len(opportunity.Results))
	}

	fmt.Println("\n✨ Done")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
