package config

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client                *mongo.Client
	UserCollection        *mongo.Collection
	ProductCollection     *mongo.Collection
	SupplierCollection    *mongo.Collection
	InvoiceCollection     *mongo.Collection
	PosSettingsCollection *mongo.Collection
	ResetCodeCollection   *mongo.Collection
)

func ConnectDatabase() {
	client, err := mongo.NewClient(options.Client().ApplyURI(os.Getenv("MONGO_URI")))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "invotrack"
	}

	Client = client
	UserCollection = Client.Database(dbName).Collection("users")
	ProductCollection = Client.Database(dbName).Collection("products")
	SupplierCollection = Client.Database(dbName).Collection("suppliers")
	InvoiceCollection = Client.Database(dbName).Collection("invoices")
	PosSettingsCollection = Client.Database(dbName).Collection("possettings")
	ResetCodeCollection = Client.Database(dbName).Collection("resetcodes")

	log.Println("Connected to MongoDB")
}
