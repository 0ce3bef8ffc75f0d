package engine

import "github.com/monsefu/resplan/internal/model"

// emergencyServices maps emergency codes to the service that responds to them.
// Codes not listed count toward total emergencies but load no service.
var emergencyServices = map[model.TypeCode]model.Service{
	model.EmergencyPolice:       model.ServicePolice,
	model.EmergencyPatrol:       model.ServicePatrol,
	model.EmergencyAmbulance:    model.ServiceAmbulance,
	model.EmergencyFireIncident: model.ServiceFire,
	model.EmergencyFireRescue:   model.ServiceFire,
}

// ServiceFor returns the responding service for an emergency code.
func ServiceFor(code model.TypeCode) (model.Service, bool) {
	s, ok := emergencyServices[code]
	return s, ok
}

// partitionEmergencies sums emergency counts per service in code order.
func partitionEmergencies(counts map[model.TypeCode]float64) (load model.ServiceLoad, unmapped float64) {
	for _, code := range model.SortedCodes(counts) {
		n := counts[code]
		svc, ok := ServiceFor(code)
		if !ok {
			unmapped += n
			continue
		}
		switch svc {
		case model.ServicePolice:
			load.Police += n
		case model.ServicePatrol:
			load.Patrol += n
		case model.ServiceAmbulance:
			load.Ambulance += n
		case model.ServiceFire:
			load.Fire += n
		}
	}
	return load, unmapped
}
