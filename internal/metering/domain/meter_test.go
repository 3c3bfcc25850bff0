package metering

import "testing"

func TestUnits(t *testing.T) {
	cases := map[MeterType]string{
		Electricity: "kWh",
		Heating:     "kWh",
		WaterCold:   "m³",
		WaterHot:    "m³",
		Gas:         "m³",
	}
	for typ, want := range cases {
		if got := typ.Unit(); got != want {
			t.Fatalf("%s unit = %q, want %q", typ, got, want)
		}
	}
	if !WaterHot.IsWater() || Gas.IsWater() {
		t.Fatalf("water classification wrong")
	}
}
