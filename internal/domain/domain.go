package domain

import "github.com/eitanrom/plada-backend/internal/domain/reports"

type RawEvent = reports.RawEvent
type NormalizedResponse = reports.NormalizedResponse
type MetricSnapshot = reports.MetricSnapshot
type DeadLetter = reports.DeadLetter
