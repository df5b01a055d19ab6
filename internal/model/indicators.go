package model

// RSIResult holds an RSI reading and the averages it was derived from.
type RSIResult struct {
	Value   float64 // 0 ~ 100
	AvgGain float64
	AvgLoss float64
}

// BollingerBands holds a single-point band reading. Upper >= Middle >= Lower.
type BollingerBands struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Bandwidth float64 // Upper - Lower
}
