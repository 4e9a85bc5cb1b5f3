package domain

import "github.com/google/uuid"

// SystemUserID owns the system-held wallets: the escrow wallet that
// holds pending-loan principal and the main wallet acting as the fee
// sink. Seeded by migration; never authenticates.
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
