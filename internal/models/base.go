package models

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// All lists every model managed by the migrator.
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Group{},
		&GroupMembership{},
		&GroupCharge{},
		&Payment{},
		&PaymentProof{},
		&PaymentTicket{},
		&Notification{},
	}
}
