package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmployeePermissions are the per-employee flags a company owner can grant.
type EmployeePermissions struct {
	CanCreateRequests bool `bson:"canCreateRequests" json:"canCreateRequests"`
	CanApproveOrders  bool `bson:"canApproveOrders" json:"canApproveOrders"`
	CanManagePayments bool `bson:"canManagePayments" json:"canManagePayments"`
}

// Employee is a sub-account under a company buyer.
type Employee struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Mobile      string              `bson:"mobile" json:"mobile"`
	Designation string              `bson:"designation,omitempty" json:"designation,omitempty"`
	Permissions EmployeePermissions `bson:"permissions" json:"permissions"`
	AddedAt     time.Time           `bson:"addedAt" json:"addedAt"`
}

// Company aggregates employee sub-accounts under an owning buyer account.
type Company struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner" json:"owner"`
	Name      string             `bson:"name" json:"name"`
	GSTNumber string             `bson:"gstNumber,omitempty" json:"gstNumber,omitempty"`
	Address   Location           `bson:"address,omitempty" json:"address"`
	Employees []Employee         `bson:"employees" json:"employees"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
