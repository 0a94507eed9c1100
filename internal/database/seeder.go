package database

import (
	"context"
	"log"
	"time"

	"agri-market-api-server/internal/auth"
	"agri-market-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedAdmin creates the default admin account on first start.
func SeedAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	adminMobile := "0000000000"

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"mobile": adminMobile, "role": models.RoleAdmin})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin account already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin account not found. Seeding...")
	hashedPassword, err := auth.HashPassword("adminpassword")
	if err != nil {
		return err
	}

	admin := models.User{
		Mobile:    adminMobile,
		Name:      "Admin",
		Password:  hashedPassword,
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err = userCollection.InsertOne(context.Background(), admin)
	if err != nil {
		return err
	}

	log.Println("Admin account seeded successfully.")
	return nil
}
