package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPointScale es la escala usada cuando no se configura otra.
var DefaultPointScale = PointScale{1, 2, 4, 8, 16}

var ErrInvalidPointScale = errors.New("invalid point scale")

// PointScale es el conjunto ordenado de valores de estimacion permitidos.
type PointScale []int

// ParsePointScale convierte "1,2,4,8" en una escala validada.
func ParsePointScale(raw string) (PointScale, error) {
	parts := strings.Split(raw, ",")
	scale := make(PointScale, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidPointScale, p)
		}
		scale = append(scale, n)
	}
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	return scale, nil
}

// Validate exige una escala no vacia, estrictamente creciente y positiva.
func (s PointScale) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPointScale)
	}
	for i, v := range s {
		if v <= 0 {
			return fmt.Errorf("%w: %d is not positive", ErrInvalidPointScale, v)
		}
		if i > 0 && v <= s[i-1] {
			return fmt.Errorf("%w: %d does not follow %d", ErrInvalidPointScale, v, s[i-1])
		}
	}
	return nil
}

func (s PointScale) Contains(points int) bool {
	for _, v := range s {
		if v == points {
			return true
		}
	}
	return false
}

// Nearest devuelve el escalon mas cercano a la media sum/count.
// La comparacion se hace en enteros (|v*count - sum|) para que los empates sean exactos;
// ante empate gana el escalon inferior.
func (s PointScale) Nearest(sum, count int) int {
	if len(s) == 0 {
		return 0
	}
	if count <= 0 {
		return s[0]
	}
	best := s[0]
	bestDist := absInt(best*count - sum)
	for _, v := range s[1:] {
		d := absInt(v*count - sum)
		if d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

func (s PointScale) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
