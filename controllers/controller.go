package controllers

import (
	"github.com/Govind-619/GreenLedger/ledger"
	"github.com/Govind-619/GreenLedger/membership"
	"github.com/Govind-619/GreenLedger/payment"
	"github.com/Govind-619/GreenLedger/reconcile"
	"gorm.io/gorm"
)

// Controller holds the services the HTTP handlers call into.
type Controller struct {
	DB        *gorm.DB
	Ledger    *ledger.Ledger
	Initiator *payment.Initiator
	Engine    *reconcile.Engine
	Grantor   *membership.Grantor
	Offer     membership.Offer
}
