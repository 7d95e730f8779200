package models

// knownBrands 学習済みモデルが想定するブランドの閉じた列挙。
// 並び順がそのまま one-hot 列の順序になるため、要素の追加・並べ替えはモデルの再学習を伴う。
var knownBrands = [...]string{
	"Ashok", "Aston Martin", "Audi", "BMW", "Bajaj", "Bentley", "Chevrolet",
	"Citroen", "Datsun", "Fiat", "Force", "Ford", "Honda", "Hummer", "Hyundai",
	"ICML", "Isuzu", "Jaguar", "Jeep", "Kia", "Lamborghini", "Land Rover",
	"Lexus", "MG", "Mahindra", "Maruti Suzuki", "Maserati", "Mercedes-Benz",
	"Mini", "Mitsubishi", "Nissan", "Opel", "Porsche", "Renault", "Rolls-Royce",
	"Skoda", "Ssangyong", "Tata", "Toyota", "Toyota Land", "Volkswagen", "Volvo",
}

var brandIndex = func() map[string]int {
	m := make(map[string]int, len(knownBrands))
	for i, b := range knownBrands {
		m[b] = i
	}
	return m
}()

// KnownBrands returns a copy of the closed brand enumeration in column order.
func KnownBrands() []string {
	out := make([]string, len(knownBrands))
	copy(out, knownBrands[:])
	return out
}

// BrandCount 列挙されているブランド数
func BrandCount() int { return len(knownBrands) }

// BrandIndex returns the one-hot column of brand, or -1 when brand is not enumerated.
// Matching is exact, as in the trained model's column names.
func BrandIndex(brand string) int {
	if i, ok := brandIndex[brand]; ok {
		return i
	}
	return -1
}
