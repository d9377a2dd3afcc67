package utils

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"backend/config"
	"backend/models"
	"backend/storage"
)

// CheckLowStock is the daily sweep: it collects every product at or below
// the low-stock threshold, logs the summary and mails it when SMTP is
// configured. Scheduled by gocron from main.
func CheckLowStock(cfg *config.Config, products *storage.Products) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	low, err := products.LowStock(ctx)
	if err != nil {
		log.Printf("low stock sweep failed: %v", err)
		return
	}
	if len(low) == 0 {
		log.Println("low stock sweep: nothing below threshold")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d products at or below %d pieces:\n\n", len(low), models.LowStockThreshold)
	for _, p := range low {
		fmt.Fprintf(&b, "[%s] %s: %d pieces\n", p.Store, p.Item, p.Pieces)
	}
	log.Printf("low stock sweep: %d products flagged", len(low))

	if err := SendLowStockAlert(cfg, b.String()); err != nil {
		log.Printf("low stock alert mail failed: %v", err)
	}
}
