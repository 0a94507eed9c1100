package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
	RoleAdmin  = "admin"
)

// Buyer account classification.
const (
	BuyerTypeIndividual = "individual"
	BuyerTypeCompany    = "company"
)

// FarmerDetails holds the farmer-specific profile section.
type FarmerDetails struct {
	FarmingType      string   `bson:"farmingType,omitempty" json:"farmingType,omitempty"` // organic, conventional, mixed
	LandSizeAcres    float64  `bson:"landSizeAcres,omitempty" json:"landSizeAcres,omitempty"`
	MainCrops        []string `bson:"mainCrops,omitempty" json:"mainCrops,omitempty"`
	HasSmartphone    bool     `bson:"hasSmartphone" json:"hasSmartphone"`
	PreferredContact string   `bson:"preferredContact,omitempty" json:"preferredContact,omitempty"` // sms, ivr, app
}

// WantedCrop is a standing sourcing requirement a buyer publishes so farmers
// can be matched against upcoming demand.
type WantedCrop struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CropName          string             `bson:"cropName" json:"cropName"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	RequiredQuantity  float64            `bson:"requiredQuantity" json:"requiredQuantity"`
	Unit              string             `bson:"unit" json:"unit"`
	BudgetPerUnit     float64            `bson:"budgetPerUnit,omitempty" json:"budgetPerUnit,omitempty"`
	Frequency         string             `bson:"frequency,omitempty" json:"frequency,omitempty"` // once, weekly, monthly, seasonal
	Districts         []string           `bson:"districts,omitempty" json:"districts,omitempty"`
	QualityPreference string             `bson:"qualityPreference,omitempty" json:"qualityPreference,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Active            bool               `bson:"active" json:"active"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// BuyerDetails holds the buyer-specific profile section.
type BuyerDetails struct {
	BuyerType           string              `bson:"buyerType,omitempty" json:"buyerType,omitempty"`
	BusinessName        string              `bson:"businessName,omitempty" json:"businessName,omitempty"`
	GSTNumber           string              `bson:"gstNumber,omitempty" json:"gstNumber,omitempty"`
	PreferredCategories []string            `bson:"preferredCategories,omitempty" json:"preferredCategories,omitempty"`
	CompanyID           *primitive.ObjectID `bson:"company,omitempty" json:"company,omitempty"`
	WantedCrops         []WantedCrop        `bson:"wantedCrops,omitempty" json:"wantedCrops,omitempty"`
}

// User is a farmer, buyer or admin account. Mobile number is the login identity.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Mobile   string             `bson:"mobile" json:"mobile"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	Password string             `bson:"password,omitempty" json:"-"`
	// 4-digit PIN hash for IVR authentication (farmers without smartphones).
	PIN  string `bson:"pin,omitempty" json:"-"`
	Role string `bson:"role" json:"role"`

	// One-time password for account recovery, cleared after verification.
	OTP          string     `bson:"otp,omitempty" json:"-"`
	OTPExpiresAt *time.Time `bson:"otpExpiry,omitempty" json:"-"`

	Location Location `bson:"location,omitempty" json:"location"`

	FarmerDetails *FarmerDetails `bson:"farmerDetails,omitempty" json:"farmerDetails,omitempty"`
	BuyerDetails  *BuyerDetails  `bson:"buyerDetails,omitempty" json:"buyerDetails,omitempty"`

	PreferredLanguage string `bson:"preferredLanguage,omitempty" json:"preferredLanguage,omitempty"`

	IsActive  bool       `bson:"isActive" json:"isActive"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
