package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// EmulationSample es un punto de la curva simulada.
// Evaluation está normalizada: la primera muestra representa el valor inicial.
type EmulationSample struct {
	Day        time.Time
	Evaluation float64
}

// Percent devuelve la evaluación en porcentaje (punto de partida = 100%).
func (s EmulationSample) Percent() float64 {
	return s.Evaluation * 100
}

// Variant es una allocation candidata devuelta por la optimización.
// Sus pesos son autoritativos sobre los de la allocation al seleccionarla.
type Variant struct {
	ProfitRatio     float64
	VolatilityRatio float64
	Weights         map[string]float64
}

// EmulationSummary resume la curva emulada.
type EmulationSummary struct {
	Samples     int
	Start       float64
	End         float64
	TotalReturn float64 // End/Start - 1
	Volatility  float64 // desviación estándar de los retornos diarios
	MaxDrawdown float64 // caída máxima desde un pico, positiva
}

// SummarizeEmulation calcula el resumen de la curva. Devuelve el valor cero si está vacía.
func SummarizeEmulation(samples []EmulationSample) EmulationSummary {
	if len(samples) == 0 {
		return EmulationSummary{}
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Evaluation
	}

	sum := EmulationSummary{
		Samples: len(values),
		Start:   values[0],
		End:     values[len(values)-1],
	}
	if sum.Start != 0 {
		sum.TotalReturn = sum.End/sum.Start - 1
	}

	returns := dailyReturns(values)
	if len(returns) >= 2 {
		sum.Volatility = stat.StdDev(returns, nil)
	}

	peak := values[0]
	for _, v := range values {
		peak = math.Max(peak, v)
		if peak > 0 {
			sum.MaxDrawdown = math.Max(sum.MaxDrawdown, (peak-v)/peak)
		}
	}
	return sum
}

func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}
