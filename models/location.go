package models

var serviceLocations = []Location{
	{Name: "Mbeya Mjini", Region: "Mbeya", District: "Mbeya Urban"},
	{Name: "Uyole", Region: "Mbeya", District: "Mbeya Rural"},
	{Name: "Maendeleo", Region: "Mbeya", District: "Mbeya Urban"},
	{Name: "Sisimba", Region: "Mbeya", District: "Mbeya Urban"},
	{Name: "Itiji", Region: "Mbeya", District: "Mbeya Rural"},
	{Name: "Ruanda", Region: "Mbeya", District: "Mbeya Urban"},
	{Name: "Tunduma", Region: "Songwe", District: "Tunduma"},
	{Name: "Vwawa", Region: "Songwe", District: "Vwawa"},
	{Name: "Chunya", Region: "Mbeya", District: "Chunya"},
	{Name: "Kyela", Region: "Mbeya", District: "Kyela"},
}

// ServiceLocations lists the pickup and drop-off points currently served
func ServiceLocations() []Location {
	out := make([]Location, len(serviceLocations))
	copy(out, serviceLocations)
	return out
}
