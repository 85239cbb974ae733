package integration

import "github.com/oshokin/fall-guard/internal/domain/health"

func wireProfile() health.Profile {
	return health.Profile{
		Name:           "Ann",
		Age:            81,
		EmergencyName:  "Bob",
		EmergencyPhone: "+15550100",
	}
}

func wireMedication() health.Medication {
	return health.Medication{
		Name:   "Metformin",
		Dosage: "500mg",
		Times:  []string{"08:00", "20:00"},
	}
}
