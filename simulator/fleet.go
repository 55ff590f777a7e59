package simulator

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/haulplan/core/fleet"
	"github.com/kilianp07/haulplan/core/model"
)

// Station is the synthetic tide station shared by the generated tidal ramps.
const Station = "SIM0001"

var workWeek = map[string]string{
	"mon": "07:00-15:00", "tue": "07:00-15:00", "wed": "07:00-15:00",
	"thu": "07:00-15:00", "fri": "07:00-15:00", "sat": "08:00-12:00",
}

// yard is the centre of the generated storage addresses.
var yard = model.LatLon{Lat: 42.0917, Lon: -70.7056}

// GenerateFleet builds a yard with two haulers, the crane and three ramps,
// plus one customer per boat. Sailboats are created according to SailShare.
func GenerateFleet(cfg Config, rng *rand.Rand) fleet.Fixture {
	fx := fleet.Fixture{
		Trucks: []fleet.TruckSpec{
			{Name: "S20/33", MaxBoatLength: 40, Hours: workWeek},
			{Name: "S23/55", MaxBoatLength: 60, Hours: workWeek},
			{Name: cfg.Engine.CraneTruckName, IsCrane: true, Hours: workWeek},
		},
		Ramps: []fleet.RampSpec{
			{Name: "Duxbury", TideRule: "AnyTide", Location: model.LatLon{Lat: 42.0437, Lon: -70.6703},
				AllowedBoatTypes: []string{"Powerboat", "Sailboat DT", "Sailboat MT"}},
			{Name: "Scituate", StationID: Station, TideRule: "HoursAroundHighTide", OffsetHours: 3,
				Location:         model.LatLon{Lat: 42.1995, Lon: -70.7253},
				AllowedBoatTypes: []string{"Powerboat", "Sailboat DT", "Sailboat MT"}},
			{Name: "Green Harbor", StationID: Station, TideRule: "AnyTideWithDraftRule",
				Location:         model.LatLon{Lat: 42.0770, Lon: -70.6460},
				AllowedBoatTypes: []string{"Powerboat", "Sailboat MT"}},
		},
	}
	ramps := []string{"Duxbury", "Scituate", "Green Harbor"}
	for i := 0; i < cfg.Boats; i++ {
		b := fleet.BoatSpec{
			Name:           fmt.Sprintf("boat%04d", i+1),
			StorageAddress: fmt.Sprintf("%d Yard Rd", i+1),
			Storage: model.LatLon{
				Lat: yard.Lat + (rng.Float64()-0.5)*0.1,
				Lon: yard.Lon + (rng.Float64()-0.5)*0.1,
			},
			ECM: rng.Float64() < 0.1,
		}
		if rng.Float64() < cfg.SailShare {
			b.Type = "Sailboat MT"
			if rng.Intn(2) == 0 {
				b.Type = "Sailboat DT"
			}
			b.LengthFt = float64(24 + rng.Intn(17))
			draft := 4 + float64(rng.Intn(6))*0.5
			b.DraftFt = &draft
		} else {
			b.Type = "Powerboat"
			b.LengthFt = float64(16 + rng.Intn(30))
		}
		if rng.Intn(3) > 0 {
			b.PreferredRamp = ramps[rng.Intn(len(ramps))]
			if b.Type == "Sailboat DT" && b.PreferredRamp == "Green Harbor" {
				b.PreferredRamp = "Scituate"
			}
		}
		fx.Customers = append(fx.Customers, fleet.CustomerSpec{
			Name:  fmt.Sprintf("Customer %04d", i+1),
			Boats: []fleet.BoatSpec{b},
		})
	}
	return fx
}
