package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"goldCloserBot/internal/ports"
)

// ReadPositionsFromCSV loads raw open positions from a CSV file with the
// header: ticket,direction,volume,open_price,profit,opened_at. The profit
// column may be empty, meaning no authoritative figure is available.
func ReadPositionsFromCSV(filename string) ([]ports.OpenPosition, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file %s is empty", filename)
	}

	positions := make([]ports.OpenPosition, 0, len(rows)-1)
	for i, row := range rows[1:] { // Skip header
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: expected 6 columns, got %d", i+2, len(row))
		}
		ticket, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad ticket '%s': %w", i+2, row[0], err)
		}
		volume, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad volume '%s': %w", i+2, row[2], err)
		}
		openPrice, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad open price '%s': %w", i+2, row[3], err)
		}
		var profit *float64
		if row[4] != "" {
			p, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad profit '%s': %w", i+2, row[4], err)
			}
			profit = &p
		}
		openedAt, err := time.Parse(time.RFC3339, row[5])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad opened_at '%s': %w", i+2, row[5], err)
		}

		positions = append(positions, ports.OpenPosition{
			Ticket:    ticket,
			Direction: row[1],
			Volume:    volume,
			OpenPrice: openPrice,
			Profit:    profit,
			OpenedAt:  openedAt,
		})
	}
	return positions, nil
}

// WritePositionsToCSV writes raw open positions in the format read by
// ReadPositionsFromCSV.
func WritePositionsToCSV(positions []ports.OpenPosition, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"ticket", "direction", "volume", "open_price", "profit", "opened_at"})

	for _, p := range positions {
		profit := ""
		if p.Profit != nil {
			profit = strconv.FormatFloat(*p.Profit, 'f', -1, 64)
		}
		writer.Write([]string{
			strconv.FormatInt(p.Ticket, 10),
			p.Direction,
			strconv.FormatFloat(p.Volume, 'f', -1, 64),
			strconv.FormatFloat(p.OpenPrice, 'f', -1, 64),
			profit,
			p.OpenedAt.Format(time.RFC3339),
		})
	}
	return writer.Error()
}
