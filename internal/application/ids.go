package application

import "github.com/google/uuid"

func newAssignmentID() string {
	return "AST-" + uuid.NewString()
}

func newLineID() string {
	return "LINE-" + uuid.NewString()
}

func newDiscrepancyID() string {
	return "DSC-" + uuid.NewString()
}

func newStatisticsID() string {
	return "STAT-" + uuid.NewString()
}
