package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mykeysuk/handyelite/internal/auth"
	"github.com/mykeysuk/handyelite/internal/catalog"
	"github.com/mykeysuk/handyelite/internal/config"
	"github.com/mykeysuk/handyelite/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedService struct {
	Name        string
	Description string
	Category    string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	services := []seedService{
		{Name: "Plumbing", Description: "Leak repairs, tap and toilet fitting, pipework and drainage.", Category: "Trades"},
		{Name: "Electrical", Description: "Socket and switch installation, lighting, fault finding.", Category: "Trades"},
		{Name: "Carpentry", Description: "Shelving, door hanging, skirting and bespoke joinery.", Category: "Trades"},
		{Name: "Painting & Decorating", Description: "Interior and exterior painting, wallpapering, finishing.", Category: "Decorating"},
		{Name: "Tiling", Description: "Kitchen and bathroom wall and floor tiling, regrouting.", Category: "Decorating"},
		{Name: "Flat Pack Assembly", Description: "Furniture assembly for wardrobes, beds and office units.", Category: "General"},
		{Name: "TV Mounting", Description: "Wall mounting of TVs with cable management.", Category: "General"},
		{Name: "Garden Maintenance", Description: "Lawn care, hedge trimming, fencing and clearance.", Category: "Outdoors"},
		{Name: "Gutter Cleaning", Description: "Gutter clearing, downpipe checks, minor roofline repairs.", Category: "Outdoors"},
		{Name: "Deep Cleaning", Description: "End of tenancy and one-off deep cleans.", Category: "Cleaning"},
		{Name: "Appliance Installation", Description: "Washing machine, dishwasher and oven installation.", Category: "General"},
		{Name: "Handyman Odd Jobs", Description: "Small repairs and jobs that do not fit a single trade.", Category: "General"},
	}

	for _, svc := range services {
		slug := catalog.Slugify(svc.Name)
		filter := bson.M{"slug": slug}
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":         primitive.NewObjectID().Hex(),
				"name":        svc.Name,
				"description": svc.Description,
				"category":    svc.Category,
				"slug":        slug,
				"createdAt":   time.Now().In(cfg.Timezone),
			},
		}

		_, err := cols.Services.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			log.Fatalf("seed error for %s: %v", svc.Name, err)
		}
	}

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("seed admin: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD missing, skipping")
	} else if err := seedAdminUser(ctx, cols, adminEmail, adminPassword, cfg.Timezone); err != nil {
		log.Fatalf("seed admin error for %s: %v", adminEmail, err)
	}

	log.Println("seed completed")
}

func seedAdminUser(ctx context.Context, cols *db.Collections, email, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	filter := bson.M{"email": email}
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         auth.RoleAdmin,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"email":     email,
			"firstName": "Admin",
			"createdAt": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
