// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Йоу, чат! Зараз розберемо конфігурацію клієнта рельєфу!
// Тут зберігаються всі налаштування, які можна змінити в config.toml

package game

import (
	"time"

	"golang.org/x/time/rate"

	"FlowyTerrain/world"
)

// Config - головна структура з налаштуваннями
// Поля з тегом `toml` читаються з конфіг файлу
type Config struct {
	// Адреса сервера, наприклад "ws://127.0.0.1:8080/terrain".
	// Порожня - сервер запускається в цьому ж процесі
	ServerURL string `toml:"server-url"`

	// Де віддавати метрики Prometheus. Порожня - не віддавати
	MetricsAddress string `toml:"metrics-address"`

	// Радіус завантаження в блоках (відстань Чебишева)
	MaxLoadDistance int32 `toml:"max-load-distance"`

	// Пороги відстані для LOD: блок на відстані d отримує
	// перший індекс, поріг якого >= d
	LODThresholds []int32 `toml:"lod-thresholds"`

	// Скільки запитів вокселів може бути без відповіді
	MaxOutstandingRequests int `toml:"max-outstanding-requests"`

	// Скільки часу може зайняти одна фаза циклу
	PhaseBudget duration `toml:"phase-budget"`
	// Раз на скільки елементів дивитись на годинник
	PhaseBatch int `toml:"phase-batch"`

	// Через скільки запит без відповіді вважається загубленим
	RequestTimeout duration `toml:"request-timeout"`
	// Скільки разів перевідправляти загублений запит
	RequestRetries int `toml:"request-retries"`

	// Скільки горутин генерують меші
	MeshWorkers int `toml:"mesh-workers"`

	// "block" або "edge"
	LoadingStrategy string `toml:"loading-strategy"`

	// Зерно поля густини для вбудованого сервера
	Seed uint64 `toml:"seed"`
	// Де з'являється гравець
	SpawnPosition [3]float64 `toml:"spawn-position"`

	// Обмежувачі навантаження:
	// RequestLimiter - як часто клієнт може вантажити нові блоки
	RequestLimiter Limiter `toml:"request-limiter"`
	// GenerateLimiter - скільки запитів вокселів обробляє вбудований сервер
	GenerateLimiter Limiter `toml:"generate-limiter"`
}

// DefaultConfig повертає налаштування за замовчуванням
func DefaultConfig() Config {
	return Config{
		MaxLoadDistance:        8,
		LODThresholds:          []int32{2, 4, 6},
		MaxOutstandingRequests: 1,
		PhaseBudget:            duration{time.Millisecond},
		PhaseBatch:             10,
		RequestTimeout:         duration{5 * time.Second},
		RequestRetries:         3,
		MeshWorkers:            4,
		LoadingStrategy:        string(world.BlockStrategyKind),
		SpawnPosition:          [3]float64{0, 64, 0},
	}
}

// Terrain перетворює налаштування в конфіг рельєфу
func (c *Config) Terrain() world.Config {
	return world.Config{
		MaxLoadDistance:        c.MaxLoadDistance,
		LODThresholds:          c.LODThresholds,
		MaxOutstandingRequests: c.MaxOutstandingRequests,
		PhaseBudget:            c.PhaseBudget.Duration,
		PhaseBatch:             c.PhaseBatch,
		RequestTimeout:         c.RequestTimeout.Duration,
		RequestRetries:         c.RequestRetries,
		MeshWorkers:            c.MeshWorkers,
		Strategy:               world.StrategyKind(c.LoadingStrategy),
		RequestLimiter:         c.RequestLimiter.Limiter(),
	}
}

// Limiter - структура для обмеження частоти дій
// Наприклад: не більше 100 блоків кожні 5 секунд
type Limiter struct {
	// Як часто можна виконувати дію, наприклад "5s"
	Every duration `toml:"every"`

	// Скільки разів можна виконати дію за цей період
	N int
}

// Limiter перетворює налаштування в готовий rate.Limiter.
// Якщо N не задано - ліміту немає і повертається nil.
func (l *Limiter) Limiter() *rate.Limiter {
	if l.N <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(l.Every.Duration), l.N)
}

// duration - обгортка навколо time.Duration
// Потрібна щоб читати тривалість з конфіг файлу
type duration struct {
	time.Duration
}

// UnmarshalText перетворює текст з конфігу в time.Duration
// Наприклад "5s" -> 5 секунд
func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}
