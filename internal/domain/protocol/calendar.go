package protocol

import "time"

// DateOf normaliza un instante a fecha civil (medianoche UTC).
// Todas las fechas de vencimiento se comparan a nivel de día.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddOffset suma un offset de edad a una fecha con aritmética de calendario.
// Meses y años no se aproximan a días: se recortan al último día del mes destino
// (31-ene + 1 mes = 28/29-feb; 29-feb + 1 año = 28-feb).
func AddOffset(from time.Time, unit Unit, value int) time.Time {
	base := DateOf(from)
	if value <= 0 {
		return base
	}

	switch unit {
	case UnitDays:
		return base.AddDate(0, 0, value)
	case UnitWeeks:
		return base.AddDate(0, 0, 7*value)
	case UnitMonths:
		return addMonthsClamped(base, value)
	case UnitYears:
		return addMonthsClamped(base, 12*value)
	default:
		return base
	}
}

// DueDate es la única función de fechas de vencimiento; la usan el generador y el resolver.
func DueDate(birth time.Time, e Entry) time.Time {
	return AddOffset(birth, e.Unit, e.Value)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	// primer día del mes destino; time.Date normaliza meses > 12
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(first.Year(), first.Month())
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
