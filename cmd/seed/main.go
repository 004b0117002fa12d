package main

import (
	"fmt"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultDispatcher("", ""); err != nil {
		stdLog.Printf("Failed to init default dispatcher: %v", err)
	}

	merchants := []models.Merchant{
		{Name: "Panadería La Espiga", Phone: "+57 300 111 2233", Address: "Calle 10 #4-21", Active: true},
		{Name: "Farmacia Central", Phone: "+57 300 444 5566", Address: "Carrera 7 #12-40", Active: true},
		{Name: "Restaurante Doña Rosa", Phone: "+57 300 777 8899", Address: "Calle 15 #9-03", Active: true},
	}
	for _, m := range merchants {
		var existing models.Merchant
		if err := models.DB.Where("name = ?", m.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&m).Error; err != nil {
				stdLog.Printf("Failed to create merchant %s: %v", m.Name, err)
			} else {
				stdLog.Printf("Created merchant: %s", m.Name)
			}
		} else {
			stdLog.Printf("Merchant already exists: %s", m.Name)
		}
	}

	riders := []struct {
		AuthUID  string
		Name     string
		Phone    string
		Email    string
		Password string
	}{
		{"seed-rider-andres", "Andrés Gómez", "+57 301 123 4567", "andres@example.com", "rider123"},
		{"seed-rider-camila", "Camila Torres", "+57 302 234 5678", "camila@example.com", "rider123"},
		{"seed-rider-julian", "Julián Pérez", "+57 303 345 6789", "julian@example.com", "rider123"},
	}
	for _, r := range riders {
		var existing models.Rider
		if err := models.DB.Where("auth_uid = ?", r.AuthUID).First(&existing).Error; err == nil {
			stdLog.Printf("Rider already exists: %s", r.Email)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", r.Email, err)
			continue
		}
		rider := models.Rider{
			AuthUID:      r.AuthUID,
			Name:         r.Name,
			Phone:        r.Phone,
			Email:        r.Email,
			PasswordHash: string(hash),
			Active:       true,
			Verified:     true,
		}
		if err := models.DB.Create(&rider).Error; err != nil {
			stdLog.Printf("Failed to create rider %s: %v", r.Email, err)
		} else {
			stdLog.Printf("Created rider: %s", r.Email)
		}
	}

	customers := []models.Customer{
		{Name: "María López", Phone: "+57 310 555 0101", Address: "Calle 22 #3-15 apto 201"},
		{Name: "Carlos Ruiz", Phone: "+57 310 555 0202", Address: "Carrera 9 #45-60"},
	}
	for _, cust := range customers {
		var existing models.Customer
		if err := models.DB.Where("phone = ?", cust.Phone).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cust).Error; err != nil {
				stdLog.Printf("Failed to create customer %s: %v", cust.Name, err)
			} else {
				stdLog.Printf("Created customer: %s", cust.Name)
			}
		} else {
			stdLog.Printf("Customer already exists: %s", cust.Name)
		}
	}

	settings := map[string]string{
		service.SettingKeyRiderSharePercent:    "66.66",
		service.SettingKeyPlatformSharePercent: "33.34",
		service.SettingKeyCashCustodyLimit:     "300",
	}
	for key, value := range settings {
		var existing models.Setting
		if err := models.DB.Where("key = ?", key).First(&existing).Error; err == nil {
			stdLog.Printf("Setting already exists: %s", key)
			continue
		}
		setting := models.Setting{
			Key:       key,
			ValueJSON: models.JSON{"value": value},
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create setting %s: %v", key, err)
		} else {
			stdLog.Printf("Created setting: %s = %s", key, value)
		}
	}

	fmt.Println("\nSeed data created:")
	fmt.Println("- default dispatcher (despacho)")
	fmt.Println("- 3 merchants")
	fmt.Println("- 3 riders (password: rider123)")
	fmt.Println("- 2 customers")
	fmt.Println("- split and custody settings")
}
