package entity

// BoundingBox прямоугольник вокруг всех закрашиваемых пикселей маски.
// X2 и Y2 не включаются.
type BoundingBox struct {
	X1 int // левая граница
	Y1 int // верхняя граница
	X2 int // правая граница (исключительно)
	Y2 int // нижняя граница (исключительно)
}

// Width возвращает ширину прямоугольника.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height возвращает высоту прямоугольника.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// Area возвращает площадь в пикселях.
func (b BoundingBox) Area() int {
	return b.Width() * b.Height()
}
