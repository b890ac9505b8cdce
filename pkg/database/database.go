package database

import (
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the global database handle for the application.
var DB *gorm.DB

var (
	initOnce sync.Once
	initErr  error
)

// User represents an authenticated ThreatScan user.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never exposed in JSON responses.
	CreatedAt    time.Time `json:"created_at"`
}

// Scan records one deep analysis: the verdict plus the OSINT evidence that
// went into it, so history and reports can be rendered without re-scanning.
type Scan struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`
	URL    string `gorm:"size:500" json:"url"`
	Result string `gorm:"size:32" json:"result"` // Legitimate or Phishing

	Domain             string `gorm:"size:255" json:"domain"`
	HTTPS              int    `json:"https"`
	SSLValid           int    `json:"ssl_valid"`
	DomainAgeDays      int    `json:"domain_age_days"`
	Redirects          int    `json:"redirects"`
	SuspiciousKeywords int    `json:"suspicious_keywords"`
	SubdomainCount     int    `json:"subdomain_count"`

	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// UserStats summarizes a user's scan history for the dashboard.
type UserStats struct {
	Total     int    `json:"total"`
	Phish     int    `json:"phish"`
	Legit     int    `json:"legit"`
	PhishRate int    `json:"phish_rate"`
	LastScan  string `json:"last_scan"` // empty when the user has no scans
}

// Init initializes the global SQLite database connection and runs migrations.
// It is safe to call Init multiple times; initialization will only happen once.
func Init(path string) error {
	initOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			initErr = err
			return
		}

		if err := db.AutoMigrate(&User{}, &Scan{}); err != nil {
			initErr = err
			return
		}

		DB = db
		log.Println("database initialized and migrations applied")
	})

	return initErr
}

// Open returns a standalone connection, used by tests to run against a
// temporary database without touching the global handle.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&User{}, &Scan{}); err != nil {
		return nil, err
	}
	return db, nil
}

// RecentScans returns the user's newest scans, capped at limit.
func RecentScans(db *gorm.DB, userID uint, limit int) ([]Scan, error) {
	var scans []Scan
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&scans).Error
	return scans, err
}

// StatsForUser computes the dashboard statistics for one user.
func StatsForUser(db *gorm.DB, userID uint) (UserStats, error) {
	var stats UserStats

	var total, phish, legit int64
	if err := db.Model(&Scan{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Scan{}).Where("user_id = ? AND result = ?", userID, "Phishing").Count(&phish).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Scan{}).Where("user_id = ? AND result = ?", userID, "Legitimate").Count(&legit).Error; err != nil {
		return stats, err
	}

	stats.Total = int(total)
	stats.Phish = int(phish)
	stats.Legit = int(legit)
	if total > 0 {
		stats.PhishRate = int(phish * 100 / total)
	}

	var last Scan
	err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&last).Error
	if err == nil {
		stats.LastScan = last.CreatedAt.Format("2006-01-02 15:04")
	} else if err != gorm.ErrRecordNotFound {
		return stats, err
	}

	return stats, nil
}
